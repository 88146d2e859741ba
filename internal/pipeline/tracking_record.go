package pipeline

// GeoJSONPoint is the coordinate member of a TrackingRecord. Coordinate
// order is [longitude, latitude], per GeoJSON.
type GeoJSONPoint struct {
	Type        string     `json:"type"`
	Coordinates [2]float64 `json:"coordinates"`
}

// TrackingRecord is the wire schema consumed by the tracking ingestion
// system. Field names and types must not change without coordinating
// with the downstream consumers.
type TrackingRecord struct {
	UAVID                  string       `json:"uavId"`
	FlightOperationID      string       `json:"flightOperationId"`
	TimeStamp              float64      `json:"timeStamp"` // seconds unix time
	Coordinate             GeoJSONPoint `json:"coordinate"`
	Heading                float64      `json:"heading"` // degrees, [0, 360)
	AltitudeInMeters       float64      `json:"altitudeInMeters"`
	SpeedInMetersPerSecond float64      `json:"speedInMetersPerSecond"`
	IsFlying               bool         `json:"isFlying"`
}

// FlyState renders the isFlying flag the way field operators read it in
// the logs.
func (r *TrackingRecord) FlyState() string {
	if r.IsFlying {
		return "flying"
	}
	return "grounded"
}
