package ozon

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/peterldowns/testy/assert"
	"github.com/peterldowns/testy/check"

	"github.com/hetulpatel/lotbidder/internal/bidding"
	"github.com/hetulpatel/lotbidder/internal/session"
)

type staticCookies struct {
	jar         session.CookieSet
	invalidated int
}

func (s *staticCookies) Cookies(context.Context) (session.CookieSet, error) {
	return s.jar, nil
}

func (s *staticCookies) Invalidate(context.Context) error {
	s.invalidated++
	return nil
}

const lotsBody = `{"data":{"Lots":[{
	"ID":"L1","Status":"InBidding","Currency":"RUB","Version":3,
	"ProcedureInfo":{"__typename":"DownBiddingWithStartPrice","StartPrice":1000,"Step":50},
	"TransportType":{"ID":7,"Name":"20т тент","Capacity":"82.0"},
	"Route":{"ReturnPointID":null,"WayPoints":[
		{"ArrivalAt":"2024-01-01T08:00:00Z","Point":{"ID":"p1","Name":"Склад","Address":"A"}},
		{"ArrivalAt":"2024-01-03T12:00:00Z","Point":{"ID":"p3","Name":"РЦ","Address":"C"}}
	]}
}]}}`

func TestFetchLots(t *testing.T) {
	var req graphQLRequest
	var sid string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if ck, err := r.Cookie("sid"); err == nil {
			sid = ck.Value
		}
		_ = json.NewDecoder(r.Body).Decode(&req)
		_, _ = w.Write([]byte(lotsBody))
	}))
	defer srv.Close()

	c := NewClient(Config{BaseURL: srv.URL}, &staticCookies{jar: session.CookieSet{"sid": "abc"}})
	lots, err := c.FetchLots(context.Background(), bidding.OpenLotsFilter())
	assert.NoError(t, err)

	check.Equal(t, "abc", sid)
	check.Equal(t, "BiddingsList", req.OperationName)
	filter, ok := req.Variables["filter"].(map[string]any)
	assert.True(t, ok)
	limit, _ := filter["Limit"].(float64)
	wayType, _ := filter["WayType"].(string)
	check.Equal(t, 40.0, limit)
	check.Equal(t, "Direct", wayType)

	assert.Equal(t, 1, len(lots))
	lot := lots[0]
	check.Equal(t, bidding.FlexString("L1"), lot.ID)
	check.Equal(t, "1000", lot.ProcedureInfo.StartPrice.String())
	check.Equal(t, "50", lot.ProcedureInfo.Step.String())
	check.Equal(t, "20", lot.CargoWeight())
	check.Equal(t, "82", lot.CargoVolume())
	assert.Equal(t, 2, len(lot.Route.WayPoints))
	check.Equal(t, "C", lot.Route.WayPoints[1].Point.Address)
}

func TestFetchLotsUnauthorizedInvalidatesSession(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "login required", http.StatusUnauthorized)
	}))
	defer srv.Close()

	cookies := &staticCookies{jar: session.CookieSet{"sid": "stale"}}
	_, err := NewClient(Config{BaseURL: srv.URL}, cookies).FetchLots(context.Background(), bidding.OpenLotsFilter())
	check.Error(t, err)
	check.Equal(t, 1, cookies.invalidated)
}

func TestFetchLotsServerErrorKeepsSession(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "boom", http.StatusBadGateway)
	}))
	defer srv.Close()

	cookies := &staticCookies{}
	_, err := NewClient(Config{BaseURL: srv.URL}, cookies).FetchLots(context.Background(), bidding.OpenLotsFilter())
	check.Error(t, err)
	check.Equal(t, 0, cookies.invalidated)
}

func TestFetchLotsGraphQLErrors(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"errors":[{"message":"forbidden"},{"message":"try later"}]}`))
	}))
	defer srv.Close()

	_, err := NewClient(Config{BaseURL: srv.URL}, &staticCookies{}).FetchLots(context.Background(), bidding.OpenLotsFilter())
	assert.NotNil(t, err)
	check.Equal(t, "graphql: forbidden; try later", err.Error())
}

func TestFetchLotsEmptyData(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"data":{"Lots":[]}}`))
	}))
	defer srv.Close()

	lots, err := NewClient(Config{BaseURL: srv.URL}, &staticCookies{}).FetchLots(context.Background(), bidding.OpenLotsFilter())
	assert.NoError(t, err)
	check.Equal(t, 0, len(lots))
}

func TestFetchLotsKeepsGoodLotsBesideMalformedOnes(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"data":{"Lots":[
			{"ID":"L1","ProcedureInfo":{"StartPrice":1000,"Step":50}},
			{"ID":"L2","ProcedureInfo":{"StartPrice":"по запросу"}},
			{"ID":"L3","Route":{"WayPoints":[{"ArrivalAt":false}]}}
		]}}`))
	}))
	defer srv.Close()

	lots, err := NewClient(Config{BaseURL: srv.URL}, &staticCookies{}).FetchLots(context.Background(), bidding.OpenLotsFilter())
	assert.NoError(t, err)
	assert.Equal(t, 3, len(lots))

	check.NoError(t, lots[0].DecodeErr)
	check.Equal(t, "1000", lots[0].ProcedureInfo.StartPrice.String())

	check.NoError(t, lots[1].DecodeErr)
	check.False(t, lots[1].ProcedureInfo.StartPrice.Valid())
	check.Equal(t, "по запросу", lots[1].ProcedureInfo.StartPrice.Raw())

	check.Error(t, lots[2].DecodeErr)
	check.Equal(t, bidding.FlexString("L3"), lots[2].ID)
}
