package pointcloud

// Data is the per-point payload of a cloud.
type Data interface {
	// HasValue returns whether or not this point has some user data value
	// associated with it.
	HasValue() bool

	// Value returns the user data set value, if it exists.
	Value() int

	// SetValue sets the user data value and returns the data.
	SetValue(v int) Data

	// Intensity returns the return strength, zero when unknown.
	Intensity() uint16

	// SetIntensity sets the return strength and returns the data.
	SetIntensity(v uint16) Data
}

type basicData struct {
	hasValue  bool
	value     int
	intensity uint16
}

// NewBasicData returns data with nothing set.
func NewBasicData() Data {
	return &basicData{}
}

// NewValueData returns data carrying a user value.
func NewValueData(v int) Data {
	return &basicData{hasValue: true, value: v}
}

func (bp *basicData) HasValue() bool {
	return bp.hasValue
}

func (bp *basicData) Value() int {
	return bp.value
}

func (bp *basicData) SetValue(v int) Data {
	bp.hasValue = true
	bp.value = v
	return bp
}

func (bp *basicData) Intensity() uint16 {
	return bp.intensity
}

func (bp *basicData) SetIntensity(v uint16) Data {
	bp.intensity = v
	return bp
}
