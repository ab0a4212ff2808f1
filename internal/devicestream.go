package internal

import (
	"fmt"

	specs "github.com/chrisconley/sessionmeter/specs"
)

// FindDeviceStreams implements specs.FindDeviceStreams.
// Converts specs to domain objects, sorts, partitions, and converts back to specs.
func FindDeviceStreams(eventSpecs []specs.EventSpec) (specs.DeviceStreamsSpec, error) {
	events, err := NewEvents(eventSpecs)
	if err != nil {
		return specs.DeviceStreamsSpec{}, err
	}

	streams, other := findDeviceStreams(sortByTime(events))

	devices := make([]specs.DeviceStreamSpec, 0, streams.Len())
	for _, device := range streams.Devices() {
		devices = append(devices, specs.DeviceStreamSpec{
			Device: device.ToString(),
			Events: eventsToSpecs(streams.Stream(device)),
		})
	}

	return specs.DeviceStreamsSpec{
		Devices: devices,
		Other:   eventsToSpecs(other),
	}, nil
}

// DeviceStreams is an ordered map from device to that device's events.
// Devices are kept in order of first appearance.
type DeviceStreams struct {
	order   []DeviceID
	streams map[DeviceID][]DeviceEvent
}

func newDeviceStreams() DeviceStreams {
	return DeviceStreams{streams: make(map[DeviceID][]DeviceEvent)}
}

func (s *DeviceStreams) append(event DeviceEvent) {
	device := event.Device()
	if _, ok := s.streams[device]; !ok {
		s.order = append(s.order, device)
	}
	s.streams[device] = append(s.streams[device], event)
}

func (s DeviceStreams) Devices() []DeviceID {
	return s.order
}

func (s DeviceStreams) Stream(device DeviceID) []DeviceEvent {
	return s.streams[device]
}

func (s DeviceStreams) Len() int {
	return len(s.order)
}

// findDeviceStreams splits events into per-device streams and global events.
// It expects events in time order and stops scanning right after the first
// end event, so nothing positioned after it is seen, device events included.
func findDeviceStreams(events []Event) (DeviceStreams, []Event) {
	streams := newDeviceStreams()
	other := make([]Event, 0)
	paused := false

	for _, event := range events {
		switch e := event.(type) {
		case ConnectEvent:
			streams.append(e)
		case DisconnectEvent:
			streams.append(e)
		case PauseEvent:
			if !paused {
				other = append(other, e)
			}
			paused = true
		case UnpauseEvent:
			if paused {
				other = append(other, e)
			}
			paused = false
		case StartEvent:
			other = append(other, e)
		case EndEvent:
			other = append(other, e)
			return streams, other
		default:
			panic(fmt.Sprintf("unhandled event type %T", event))
		}
	}

	return streams, other
}
