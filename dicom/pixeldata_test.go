package dicom

import (
	"fmt"

	"github.com/cocosip/go-dicom/pkg/imaging/imagetypes"
)

// framePixelData is an in-memory imagetypes.PixelData.
type framePixelData struct {
	frames       [][]byte
	frameInfo    *imagetypes.FrameInfo
	encapsulated bool
}

func newFramePixelData(frameInfo *imagetypes.FrameInfo, frames ...[]byte) *framePixelData {
	return &framePixelData{frames: frames, frameInfo: frameInfo}
}

func (p *framePixelData) GetFrame(frameIndex int) ([]byte, error) {
	if frameIndex < 0 || frameIndex >= len(p.frames) {
		return nil, fmt.Errorf("frame %d out of range", frameIndex)
	}
	return p.frames[frameIndex], nil
}

func (p *framePixelData) AddFrame(frameData []byte) error {
	p.frames = append(p.frames, frameData)
	return nil
}

func (p *framePixelData) FrameCount() int { return len(p.frames) }

func (p *framePixelData) GetFrameInfo() *imagetypes.FrameInfo { return p.frameInfo }

func (p *framePixelData) IsEncapsulated() bool { return p.encapsulated }
