package symbol

// Matrix is a width x height grid of pixels where true means dark.
type Matrix struct {
	width  int
	height int
	bits   []bool
}

// NewMatrix returns an all-light matrix.
func NewMatrix(width, height int) *Matrix {
	if width < 0 {
		width = 0
	}
	if height < 0 {
		height = 0
	}
	return &Matrix{
		width:  width,
		height: height,
		bits:   make([]bool, width*height),
	}
}

func (m *Matrix) Width() int  { return m.width }
func (m *Matrix) Height() int { return m.height }

// Get reports whether the pixel at (x, y) is dark. Out of range reads are light.
func (m *Matrix) Get(x, y int) bool {
	if x < 0 || y < 0 || x >= m.width || y >= m.height {
		return false
	}
	return m.bits[y*m.width+x]
}

// Set marks the pixel at (x, y) dark or light. Out of range writes are ignored.
func (m *Matrix) Set(x, y int, dark bool) {
	if x < 0 || y < 0 || x >= m.width || y >= m.height {
		return
	}
	m.bits[y*m.width+x] = dark
}

// SetRegion marks a w x h block starting at (left, top) dark.
func (m *Matrix) SetRegion(left, top, w, h int) {
	for y := top; y < top+h; y++ {
		for x := left; x < left+w; x++ {
			m.Set(x, y, true)
		}
	}
}

// layoutModules places a borderless module grid onto a pixel matrix following
// the ZXing render rules: the symbol plus margin is scaled by the largest
// integer multiple that fits the requested size and centered in it.
// modules[y][x] is true for dark modules.
func layoutModules(modules [][]bool, width, height, margin int) *Matrix {
	inputHeight := len(modules)
	inputWidth := 0
	if inputHeight > 0 {
		inputWidth = len(modules[0])
	}

	qrWidth := inputWidth + margin*2
	qrHeight := inputHeight + margin*2
	outputWidth := max(width, qrWidth)
	outputHeight := max(height, qrHeight)

	multiple := 1
	if qrWidth > 0 && qrHeight > 0 {
		multiple = min(outputWidth/qrWidth, outputHeight/qrHeight)
	}

	leftPadding := (outputWidth - inputWidth*multiple) / 2
	topPadding := (outputHeight - inputHeight*multiple) / 2

	out := NewMatrix(outputWidth, outputHeight)
	for inputY, outputY := 0, topPadding; inputY < inputHeight; inputY, outputY = inputY+1, outputY+multiple {
		row := modules[inputY]
		for inputX, outputX := 0, leftPadding; inputX < inputWidth && inputX < len(row); inputX, outputX = inputX+1, outputX+multiple {
			if row[inputX] {
				out.SetRegion(outputX, outputY, multiple, multiple)
			}
		}
	}
	return out
}
