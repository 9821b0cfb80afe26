package detector

import (
	"image/color"

	"gocv.io/x/gocv"
)

// HandConnections lists the landmark pairs that form the hand skeleton.
var HandConnections = [][2]int{
	{Wrist, ThumbCMC}, {ThumbCMC, ThumbMCP}, {ThumbMCP, ThumbIP}, {ThumbIP, ThumbTip},
	{Wrist, IndexMCP}, {IndexMCP, IndexPIP}, {IndexPIP, IndexDIP}, {IndexDIP, IndexTip},
	{IndexMCP, MiddleMCP}, {MiddleMCP, MiddlePIP}, {MiddlePIP, MiddleDIP}, {MiddleDIP, MiddleTip},
	{MiddleMCP, RingMCP}, {RingMCP, RingPIP}, {RingPIP, RingDIP}, {RingDIP, RingTip},
	{RingMCP, PinkyMCP}, {Wrist, PinkyMCP}, {PinkyMCP, PinkyPIP}, {PinkyPIP, PinkyDIP}, {PinkyDIP, PinkyTip},
}

var (
	connectionColor = color.RGBA{R: 255, G: 255, B: 255, A: 255}
	jointColor      = color.RGBA{R: 255, G: 0, B: 0, A: 255}
)

// DrawHand renders the hand skeleton onto frame in place.
func DrawHand(frame *gocv.Mat, h *HandLandmarks) {
	if frame == nil || frame.Empty() || h == nil {
		return
	}

	width, height := frame.Cols(), frame.Rows()

	for _, c := range HandConnections {
		gocv.Line(frame, h.Pixel(c[0], width, height), h.Pixel(c[1], width, height), connectionColor, 2)
	}
	for i := 0; i < NumLandmarks; i++ {
		gocv.Circle(frame, h.Pixel(i, width, height), 3, jointColor, -1)
	}
}
