package utils

import "math"

// DefaultVisibleSize is returned by the visible-size helpers when no camera is available.
const DefaultVisibleSize = 10.0

// ViewportDimensions describes the visible world-space rectangle at a given Z depth.
type ViewportDimensions struct {
	Width  float64
	Height float64
	Aspect float64
}

// GridConstraints limits where CalculateGridPositions may place items.
// Nil fields fall back to the defaults: TopBoundary = 0.45 * viewport height,
// BottomBoundary = -1, CenterOffset = 3.
type GridConstraints struct {
	TopBoundary    *float64
	BottomBoundary *float64
	LeftBoundary   *float64
	RightBoundary  *float64
	CenterOffset   *float64 // 距离场景中心的水平偏移（避开中间的龙）
}

// GridLayout is the result of a two-column layout.
type GridLayout struct {
	LeftPositions  [][3]float64
	RightPositions [][3]float64
	LinkSize       float64
}

// Float returns a pointer to v, for filling GridConstraints.
func Float(v float64) *float64 {
	return &v
}

// VisibleHeightAtZDepth returns the world-space height visible at depth for a perspective camera.
func VisibleHeightAtZDepth(cam *Camera, depth float64) float64 {
	if cam == nil {
		return DefaultVisibleSize
	}

	// z 深度转换为到相机的距离
	distance := math.Abs(depth - cam.Position.Z())

	return 2 * math.Tan(cam.Fov*math.Pi/180/2) * distance
}

// VisibleWidthAtZDepth returns the world-space width visible at depth.
func VisibleWidthAtZDepth(cam *Camera, depth float64) float64 {
	if cam == nil {
		return DefaultVisibleSize
	}
	return VisibleHeightAtZDepth(cam, depth) * cam.aspectOrOne()
}

// CalculateViewportDimensions returns the visible width, height and aspect at zDepth.
func CalculateViewportDimensions(cam *Camera, zDepth float64) ViewportDimensions {
	aspect := 1.0
	if cam != nil {
		aspect = cam.aspectOrOne()
	}
	return ViewportDimensions{
		Width:  VisibleWidthAtZDepth(cam, zDepth),
		Height: VisibleHeightAtZDepth(cam, zDepth),
		Aspect: aspect,
	}
}

// ScaleBoxToSize returns per-axis scale factors that fit box into the target dimensions.
// A zero targetDepth reuses the X scale for Z.
func ScaleBoxToSize(box Box3, targetWidth, targetHeight, targetDepth float64) [3]float64 {
	size := box.Size()

	scaleX := targetWidth / size.X()
	scaleY := targetHeight / size.Y()
	scaleZ := scaleX
	if targetDepth != 0 {
		scaleZ = targetDepth / size.Z()
	}
	return [3]float64{scaleX, scaleY, scaleZ}
}

// CalculateGridPositions lays out itemCount items in two columns between the top and
// bottom boundaries, offset by ±CenterOffset from the scene center.
//
// The left column always receives ceil(itemCount/columns) items and the right column the
// remainder. Item size is capped by itemSize and by the vertical space available to the
// fuller column. Each Y is clamped so the item never sinks below BottomBoundary.
func CalculateGridPositions(itemCount int, viewport ViewportDimensions, itemSize float64, columns int, constraints GridConstraints) GridLayout {
	if columns <= 0 {
		columns = 2
	}

	topBoundary := viewport.Height * 0.45
	if constraints.TopBoundary != nil {
		topBoundary = *constraints.TopBoundary
	}
	bottomBoundary := -1.0
	if constraints.BottomBoundary != nil {
		bottomBoundary = *constraints.BottomBoundary
	}
	centerOffset := 3.0
	if constraints.CenterOffset != nil {
		centerOffset = *constraints.CenterOffset
	}

	availableVerticalSpace := topBoundary - bottomBoundary

	leftItems := int(math.Ceil(float64(itemCount) / float64(columns)))
	rightItems := itemCount - leftItems
	maxPerColumn := max(leftItems, rightItems)

	maxItemSize := (availableVerticalSpace * 0.8) / float64(max(maxPerColumn, 1))
	finalItemSize := math.Min(maxItemSize, itemSize)

	layout := GridLayout{
		LeftPositions:  make([][3]float64, 0, max(leftItems, 0)),
		RightPositions: make([][3]float64, 0, max(rightItems, 0)),
		LinkSize:       finalItemSize,
	}

	layout.LeftPositions = columnPositions(layout.LeftPositions, leftItems, -centerOffset, topBoundary, bottomBoundary, availableVerticalSpace, finalItemSize)
	layout.RightPositions = columnPositions(layout.RightPositions, rightItems, centerOffset, topBoundary, bottomBoundary, availableVerticalSpace, finalItemSize)

	return layout
}

func columnPositions(dst [][3]float64, count int, x, top, bottom, space, size float64) [][3]float64 {
	if count <= 0 {
		return dst
	}
	spacing := (space - float64(count)*size) / float64(count+1)
	for i := 0; i < count; i++ {
		y := top - spacing - float64(i)*(size+spacing) - size/2
		dst = append(dst, [3]float64{x, math.Max(y, bottom+size/2), 0})
	}
	return dst
}

// IsPositionVisible reports whether a circle of radius around position lies fully inside
// the viewport rectangle centered at the origin.
func IsPositionVisible(position [3]float64, radius float64, viewport ViewportDimensions) bool {
	halfWidth := viewport.Width / 2
	halfHeight := viewport.Height / 2

	return math.Abs(position[0])+radius < halfWidth &&
		math.Abs(position[1])+radius < halfHeight
}
