package goap

// Sensor writes facts into an agent's memory once per tick, before planning.
type Sensor interface {
	// Name identifies the sensor.
	Name() string

	// Init is called once when the sensor is added to an agent.
	Init(agent Agent)

	// Update refreshes the sensor's keys. An error leaves the previous
	// values in place.
	Update(agent Agent) error
}

// SensorFunc adapts a function to the Sensor interface.
type SensorFunc struct {
	name   string
	update func(Agent) error
	init   func(Agent)
}

// NewSensor creates a sensor from an update function.
func NewSensor(name string, update func(Agent) error) *SensorFunc {
	return &SensorFunc{name: name, update: update}
}

// WithInit sets the init hook and returns the sensor.
func (s *SensorFunc) WithInit(fn func(Agent)) *SensorFunc {
	s.init = fn
	return s
}

// Name returns the sensor name.
func (s *SensorFunc) Name() string { return s.name }

// Init calls the init hook, if any.
func (s *SensorFunc) Init(agent Agent) {
	if s.init != nil {
		s.init(agent)
	}
}

// Update calls the update function.
func (s *SensorFunc) Update(agent Agent) error {
	if s.update == nil {
		return nil
	}
	return s.update(agent)
}
