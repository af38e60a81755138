package models

// EntityStanding is the per-entity aggregate the ranking engine scores. One
// standing covers every metric type for a single (entity kind, time window)
// load: the engine derives each metric's score from these sums.
type EntityStanding struct {
	EntityID   int64
	Name       string
	Region     string
	City       string
	OptedIn    bool
	EventCount int     // distinct non-canceled qualifying events in window
	Bags       int     // adjusted-preferred bag sum
	WeightLbs  float64 // adjusted-preferred weight sum, kg normalized
	Minutes    int     // adjusted-preferred duration sum
}
