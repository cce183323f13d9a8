package timezone

import "time"

var Location *time.Location

func init() {
	var err error
	Location, err = time.LoadLocation("America/New_York")
	if err != nil {
		panic(err)
	}
}

// force timestamps into eastern time because observation ordering is
// compared across process restarts and our servers do not all end up
// in the same region
func Now() time.Time {
	return time.Now().In(Location)
}
