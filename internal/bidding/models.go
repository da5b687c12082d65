package bidding

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
)

// CityNotSpecified is the fallback city id used when a lookup fails or is absent.
const CityNotSpecified = "Не указано"

// ErrMissingLotID is returned for lots that carry no identifier.
var ErrMissingLotID = errors.New("lot has no id")

// Lot is one open bidding opportunity as returned by the lot-query API.
type Lot struct {
	ID            FlexString    `json:"ID"`
	Status        string        `json:"Status"`
	Currency      string        `json:"Currency"`
	ProcedureInfo ProcedureInfo `json:"ProcedureInfo"`
	TransportType TransportType `json:"TransportType"`
	Route         LotRoute      `json:"Route"`

	// DecodeErr is set for a lot whose body could not be decoded.
	DecodeErr error `json:"-"`
}

// DecodeLots decodes each raw lot on its own, so one malformed lot does not
// lose the rest. A lot that fails keeps whatever id could be recovered and
// carries the failure in DecodeErr.
func DecodeLots(raws []json.RawMessage) []Lot {
	out := make([]Lot, 0, len(raws))
	for _, raw := range raws {
		var lot Lot
		if err := json.Unmarshal(raw, &lot); err != nil {
			var head struct {
				ID FlexString `json:"ID"`
			}
			_ = json.Unmarshal(raw, &head)
			lot = Lot{ID: head.ID, DecodeErr: fmt.Errorf("decode lot: %w", err)}
		}
		out = append(out, lot)
	}
	return out
}

// ProcedureInfo carries the auction prices of a lot.
type ProcedureInfo struct {
	StartPrice Price `json:"StartPrice"`
	Step       Price `json:"Step"`
}

// TransportType describes the requested vehicle, e.g. Name "20т тент", Capacity "82.0".
type TransportType struct {
	ID       FlexString `json:"ID"`
	Name     string     `json:"Name"`
	Capacity FlexString `json:"Capacity"`
}

type LotRoute struct {
	WayPoints []LotWayPoint `json:"WayPoints"`
}

type LotWayPoint struct {
	ArrivalAt string `json:"ArrivalAt"`
	Point     Point  `json:"Point"`
}

type Point struct {
	ID      FlexString `json:"ID"`
	Name    string     `json:"Name"`
	Address string     `json:"Address"`
}

// CargoWeight returns the transport name up to the first 'т' (tons marker).
func (l Lot) CargoWeight() string {
	name := l.TransportType.Name
	if idx := strings.IndexRune(name, 'т'); idx >= 0 {
		return name[:idx]
	}
	return name
}

// CargoVolume returns the capacity up to the decimal point.
func (l Lot) CargoVolume() string {
	capacity := string(l.TransportType.Capacity)
	if idx := strings.IndexByte(capacity, '.'); idx >= 0 {
		return capacity[:idx]
	}
	return capacity
}

// Waypoints flattens the lot route into waypoints with unresolved cities.
func (l Lot) Waypoints() []Waypoint {
	out := make([]Waypoint, 0, len(l.Route.WayPoints))
	for _, wp := range l.Route.WayPoints {
		date, clock := SplitArrival(wp.ArrivalAt)
		out = append(out, Waypoint{
			ArrivalAt: wp.ArrivalAt,
			Date:      date,
			Time:      clock,
			Address:   wp.Point.Address,
			CityID:    CityNotSpecified,
		})
	}
	return out
}

// Waypoint is a stop along a lot route, enriched with the resolved city.
type Waypoint struct {
	ArrivalAt string
	Date      string
	Time      string
	Address   string
	CityID    string
	Street    *string
}

// SplitArrival splits "2024-01-01T08:00:00Z" into "2024-01-01" and "08:00:00".
// No calendar validation is performed.
func SplitArrival(arrivalAt string) (date, clock string) {
	if arrivalAt == "" {
		return "", ""
	}
	date, rest, found := strings.Cut(arrivalAt, "T")
	if !found {
		return date, ""
	}
	clock, _, _ = strings.Cut(rest, "Z")
	return date, clock
}

// Resolution is the lookup outcome for one address.
type Resolution struct {
	CityID string  `json:"city_id"`
	Street *string `json:"street,omitempty"`
}

// Fallback is the resolution used for unresolved addresses.
func Fallback() Resolution {
	return Resolution{CityID: CityNotSpecified}
}

// LookupResult is a single entry of a location lookup response.
type LookupResult struct {
	IsSuccess bool
	CityID    string
	Street    string
}

// LotFilter is the query filter sent to the lot-query API.
type LotFilter struct {
	Limit                   int          `json:"Limit"`
	OnlyCurrentContractBids bool         `json:"OnlyCurrentContractBids"`
	Status                  []string     `json:"Status"`
	TransportTypesIDs       []string     `json:"TransportTypesIDs"`
	ProceduresIDs           []string     `json:"ProceduresIDs"`
	Directions              []string     `json:"Directions"`
	RoutesFilter            RoutesFilter `json:"RoutesFilter"`
	WayType                 string       `json:"WayType"`
}

type RoutesFilter struct {
	StartClusters  []string `json:"StartClusters"`
	StartPointIDs  []string `json:"StartPointIDs"`
	EndClusters    []string `json:"EndClusters"`
	EndPointIDs    []string `json:"EndPointIDs"`
	ReturnClusters []string `json:"ReturnClusters"`
	ReturnPointIDs []string `json:"ReturnPointIDs"`
}

// OpenLotsFilter returns the fixed filter: 40 lots in bidding, direct routes, no restrictions.
func OpenLotsFilter() LotFilter {
	return LotFilter{
		Limit:             40,
		Status:            []string{"InBidding"},
		TransportTypesIDs: []string{},
		ProceduresIDs:     []string{},
		Directions:        []string{},
		RoutesFilter: RoutesFilter{
			StartClusters:  []string{},
			StartPointIDs:  []string{},
			EndClusters:    []string{},
			EndPointIDs:    []string{},
			ReturnClusters: []string{},
			ReturnPointIDs: []string{},
		},
		WayType: "Direct",
	}
}

// LotSource fetches open lots from the marketplace.
type LotSource interface {
	Name() string
	FetchLots(ctx context.Context, filter LotFilter) ([]Lot, error)
}

// Locator resolves a batch of addresses in a single call.
type Locator interface {
	Locate(ctx context.Context, addresses []string) (map[string]LookupResult, error)
}
