package bids

import (
	"encoding/json"

	"github.com/hetulpatel/lotbidder/internal/bidding"
)

// cargoName is the cargo line item name the posting board expects ("any closed body").
const cargoName = "Любой закрытый"

// Route is the loading/unloading description of a cargo application.
// The zero Route marshals as {}.
type Route struct {
	Loading     *WayPoint
	Unloading   *WayPoint
	IsRoundTrip bool
}

type routeJSON struct {
	Loading     *WayPoint `json:"loading"`
	Unloading   *WayPoint `json:"unloading"`
	IsRoundTrip bool      `json:"is_round_trip"`
}

func (r Route) IsEmpty() bool {
	return r.Loading == nil && r.Unloading == nil
}

func (r Route) MarshalJSON() ([]byte, error) {
	if r.IsEmpty() {
		return []byte("{}"), nil
	}
	return json.Marshal(routeJSON{Loading: r.Loading, Unloading: r.Unloading, IsRoundTrip: r.IsRoundTrip})
}

func (r *Route) UnmarshalJSON(data []byte) error {
	var raw routeJSON
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	*r = Route{Loading: raw.Loading, Unloading: raw.Unloading, IsRoundTrip: raw.IsRoundTrip}
	return nil
}

// WayPoint is one leg of the route: loading, unloading or intermediate.
type WayPoint struct {
	Type     string   `json:"type"`
	CityID   string   `json:"city_id"`
	Location Location `json:"location"`
	Dates    Dates    `json:"dates"`
	Cargos   []Cargo  `json:"cargos,omitempty"`
}

type Location struct {
	Type    string  `json:"type"`
	CityID  string  `json:"city_id"`
	Address string  `json:"address"`
	Street  *string `json:"street,omitempty"`
}

type Dates struct {
	Type      string    `json:"type"`
	Time      TimeRange `json:"time"`
	FirstDate string    `json:"first_date"`
}

type TimeRange struct {
	Type  string `json:"type"`
	Start string `json:"start"`
}

type Cargo struct {
	ID     int    `json:"id"`
	Name   string `json:"name"`
	Weight Weight `json:"weight"`
	Volume Volume `json:"volume"`
}

type Weight struct {
	Type     string `json:"type"`
	Quantity string `json:"quantity"`
}

type Volume struct {
	Quantity string `json:"quantity"`
}

// BuildRoute maps the first waypoint to the loading leg and the last one to
// the unloading leg. A single waypoint is used for both; no waypoints yields
// an empty Route. Cargo weight and volume are carried verbatim.
func BuildRoute(waypoints []bidding.Waypoint, cargoWeight, cargoVolume string) Route {
	if len(waypoints) == 0 {
		return Route{}
	}

	loading := newWayPoint("loading", waypoints[0])
	loading.Cargos = []Cargo{{
		ID:     1,
		Name:   cargoName,
		Weight: Weight{Type: "tons", Quantity: cargoWeight},
		Volume: Volume{Quantity: cargoVolume},
	}}
	unloading := newWayPoint("unloading", waypoints[len(waypoints)-1])

	return Route{
		Loading:     &loading,
		Unloading:   &unloading,
		IsRoundTrip: false,
	}
}

// BuildIntermediatePoints maps every given waypoint to an intermediate leg.
// Callers strip the loading and unloading waypoints first.
func BuildIntermediatePoints(waypoints []bidding.Waypoint) []WayPoint {
	out := make([]WayPoint, 0, len(waypoints))
	for _, wp := range waypoints {
		out = append(out, newWayPoint("intermediate", wp))
	}
	return out
}

// Intermediate returns waypoints without the first and last element.
func Intermediate(waypoints []bidding.Waypoint) []bidding.Waypoint {
	if len(waypoints) <= 2 {
		return nil
	}
	return waypoints[1 : len(waypoints)-1]
}

func newWayPoint(kind string, wp bidding.Waypoint) WayPoint {
	return WayPoint{
		Type:   kind,
		CityID: wp.CityID,
		Location: Location{
			Type:    "manual",
			CityID:  wp.CityID,
			Address: wp.Address,
			Street:  wp.Street,
		},
		Dates: Dates{
			Type:      "ready",
			Time:      TimeRange{Type: "bounded", Start: wp.Time},
			FirstDate: wp.Date,
		},
	}
}
