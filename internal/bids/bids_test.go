package bids

import (
	"encoding/json"
	"strings"
	"testing"

	"github.com/peterldowns/testy/assert"
	"github.com/peterldowns/testy/check"

	"github.com/hetulpatel/lotbidder/internal/bidding"
)

func waypoint(address, city, arrival string) bidding.Waypoint {
	date, clock := bidding.SplitArrival(arrival)
	return bidding.Waypoint{ArrivalAt: arrival, Date: date, Time: clock, Address: address, CityID: city}
}

func price(t *testing.T, s string) bidding.Price {
	t.Helper()
	p, err := bidding.PriceFromString(s)
	assert.NoError(t, err)
	return p
}

func TestBuildRouteLegs(t *testing.T) {
	wps := []bidding.Waypoint{
		waypoint("A", "1", "2024-01-01T08:00:00Z"),
		waypoint("B", "2", "2024-01-02T10:00:00Z"),
		waypoint("C", "3", "2024-01-03T12:00:00Z"),
	}

	route := BuildRoute(wps, "20", "82")
	assert.NotNil(t, route.Loading)
	assert.NotNil(t, route.Unloading)

	check.Equal(t, "loading", route.Loading.Type)
	check.Equal(t, "1", route.Loading.CityID)
	check.Equal(t, "A", route.Loading.Location.Address)
	check.Equal(t, "manual", route.Loading.Location.Type)
	check.Equal(t, "2024-01-01", route.Loading.Dates.FirstDate)
	check.Equal(t, "08:00:00", route.Loading.Dates.Time.Start)
	assert.Equal(t, 1, len(route.Loading.Cargos))
	check.Equal(t, Cargo{ID: 1, Name: cargoName, Weight: Weight{Type: "tons", Quantity: "20"}, Volume: Volume{Quantity: "82"}}, route.Loading.Cargos[0])

	check.Equal(t, "unloading", route.Unloading.Type)
	check.Equal(t, "3", route.Unloading.CityID)
	check.Equal(t, "C", route.Unloading.Location.Address)
	check.Equal(t, "12:00:00", route.Unloading.Dates.Time.Start)
	check.Equal(t, 0, len(route.Unloading.Cargos))
	check.False(t, route.IsRoundTrip)
}

func TestBuildRouteSingleWaypoint(t *testing.T) {
	route := BuildRoute([]bidding.Waypoint{waypoint("Only", "7", "2024-05-05T05:05:05Z")}, "10", "40")
	assert.NotNil(t, route.Loading)
	assert.NotNil(t, route.Unloading)
	check.Equal(t, route.Loading.CityID, route.Unloading.CityID)
	check.Equal(t, route.Loading.Location.Address, route.Unloading.Location.Address)
}

func TestBuildRouteEmpty(t *testing.T) {
	route := BuildRoute(nil, "", "")
	check.True(t, route.IsEmpty())

	out, err := json.Marshal(route)
	assert.NoError(t, err)
	check.Equal(t, "{}", string(out))
}

func TestBuildIntermediatePoints(t *testing.T) {
	wps := []bidding.Waypoint{
		waypoint("A", "1", "2024-01-01T08:00:00Z"),
		waypoint("B", "2", "2024-01-02T10:00:00Z"),
		waypoint("C", "3", "2024-01-03T12:00:00Z"),
		waypoint("D", "4", "2024-01-04T14:00:00Z"),
	}

	points := BuildIntermediatePoints(Intermediate(wps))
	assert.Equal(t, 2, len(points))
	check.Equal(t, "B", points[0].Location.Address)
	check.Equal(t, "C", points[1].Location.Address)
	check.Equal(t, "intermediate", points[0].Type)
	check.Equal(t, "2024-01-03", points[1].Dates.FirstDate)

	empty := BuildIntermediatePoints(nil)
	check.NotNil(t, empty)
	check.Equal(t, 0, len(empty))
}

func TestIntermediateCounts(t *testing.T) {
	for n := 0; n <= 6; n++ {
		wps := make([]bidding.Waypoint, n)
		want := n - 2
		if want < 0 {
			want = 0
		}
		check.Equal(t, want, len(Intermediate(wps)))
	}
}

func TestStreetCarriedWhenResolved(t *testing.T) {
	street := "Lenina 1"
	wp := waypoint("A", "1", "")
	wp.Street = &street

	route := BuildRoute([]bidding.Waypoint{wp}, "", "")
	out, err := json.Marshal(route.Loading.Location)
	assert.NoError(t, err)
	check.Equal(t, `{"type":"manual","city_id":"1","address":"A","street":"Lenina 1"}`, string(out))

	bare, err := json.Marshal(BuildRoute([]bidding.Waypoint{waypoint("A", "1", "")}, "", "").Loading.Location)
	assert.NoError(t, err)
	check.False(t, strings.Contains(string(bare), "street"))
}

func TestBuildPayloadFields(t *testing.T) {
	b := NewBuilder(12213)
	route := BuildRoute([]bidding.Waypoint{waypoint("A", "1", ""), waypoint("C", "3", "")}, "20", "82")

	p := b.Build("L1", price(t, "1000"), price(t, "50"), route, nil)
	app := p.CargoApplication

	check.Equal(t, "L1", app.ExternalID)
	check.Equal(t, "L1", app.Note)
	check.Equal(t, "L1", p.LotID())
	check.Equal(t, "1000", app.Payment.Cash.String())
	check.Equal(t, "1000", app.Payment.StartRate.String())
	check.Equal(t, "50", app.Payment.BidStep.String())
	check.Equal(t, "1000", app.Payment.Rates.RateWithoutNDS.String())
	check.Equal(t, Prepayment{Percent: 50, UsingFuel: true}, app.Payment.Prepayment)
	check.Equal(t, PaymentMode{Type: "delayed-payment", PaymentDelayDays: 7}, app.Payment.PaymentMode)
	check.Equal(t, 20, app.Payment.VATPercents)
	check.Equal(t, "1h", app.Payment.AuctionDuration.FixedDuration)
	check.Equal(t, AutoRenew{Enabled: true, RenewInterval: 24}, app.Payment.AutoRenew)
	check.Equal(t, RateRise{Interval: 1, RiseAmount: 5}, app.Payment.RateRise)
	check.Equal(t, "best-rate", app.Payment.WinnerCriteria)
	check.Equal(t, 48, app.Payment.TimeToProvideDocuments.Hours)
	check.Equal(t, 2, app.Payment.WinnerReselectionCount)
	check.Equal(t, AuctionRestart{Enabled: true, RestartInterval: 24}, app.Payment.AuctionRestart)
	check.Equal(t, "archive", app.Payment.NoWinnerEndOptions.Type)

	assert.Equal(t, 1, len(app.Boards))
	check.Equal(t, Board{ID: 12213, PublicationMode: "now", CancelPublishOnAuctionBet: false, ReservationEnabled: true}, app.Boards[0])
	check.NotNil(t, app.WayPoints)
}

func TestBuildPayloadDeterministic(t *testing.T) {
	b := NewBuilder(7)
	wps := []bidding.Waypoint{waypoint("A", "1", "2024-01-01T08:00:00Z"), waypoint("B", "2", "2024-01-02T10:00:00Z")}

	build := func() []byte {
		route := BuildRoute(wps, "20", "82")
		out, err := json.Marshal(b.Build("L9", price(t, "1500.50"), price(t, "25"), route, BuildIntermediatePoints(Intermediate(wps))))
		assert.NoError(t, err)
		return out
	}

	first, second := build(), build()
	check.Equal(t, string(first), string(second))
	check.True(t, strings.Contains(string(first), `"cash":1500.5`))
	check.True(t, strings.Contains(string(first), `"external_id":"L9"`))
	check.True(t, strings.Contains(string(first), `"note":"L9"`))
	check.True(t, strings.Contains(string(first), `"way_points":[]`))
}

func TestBuildPayloadMissingPrices(t *testing.T) {
	out, err := json.Marshal(NewBuilder(1).Build("L2", bidding.Price{}, bidding.Price{}, Route{}, nil))
	assert.NoError(t, err)
	check.True(t, strings.Contains(string(out), `"cash":null`))
	check.True(t, strings.Contains(string(out), `"bid_step":null`))
	check.True(t, strings.Contains(string(out), `"route":{}`))
}

func TestPayloadRoundTrip(t *testing.T) {
	wps := []bidding.Waypoint{waypoint("A", "1", "2024-01-01T08:00:00Z"), waypoint("C", "3", "2024-01-03T12:00:00Z")}
	p := NewBuilder(3).Build("L3", price(t, "10"), price(t, "1"), BuildRoute(wps, "5", "6"), nil)

	out, err := json.Marshal(p)
	assert.NoError(t, err)

	var decoded Payload
	assert.NoError(t, json.Unmarshal(out, &decoded))
	assert.NotNil(t, decoded.CargoApplication.Route.Loading)
	check.Equal(t, "A", decoded.CargoApplication.Route.Loading.Location.Address)
	check.Equal(t, "10", decoded.CargoApplication.Payment.Cash.String())
}
