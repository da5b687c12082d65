package bids

import (
	"github.com/hetulpatel/lotbidder/internal/bidding"
)

// Payload is the body submitted to the posting API for one lot.
type Payload struct {
	CargoApplication CargoApplication `json:"cargo_application"`
}

// LotID returns the external id the payload was built for.
func (p Payload) LotID() string {
	return p.CargoApplication.ExternalID
}

type CargoApplication struct {
	ExternalID string     `json:"external_id"`
	Route      Route      `json:"route"`
	WayPoints  []WayPoint `json:"way_points"`
	Payment    Payment    `json:"payment"`
	Boards     []Board    `json:"boards"`
	Note       string     `json:"note"`
}

type Payment struct {
	Cash                   bidding.Price      `json:"cash"`
	Type                   string             `json:"type"`
	CurrencyType           int                `json:"currency_type"`
	HideCounterOffers      bool               `json:"hide_counter_offers"`
	DirectOffer            bool               `json:"direct_offer"`
	Prepayment             Prepayment         `json:"prepayment"`
	PaymentMode            PaymentMode        `json:"payment_mode"`
	AcceptBidsWithVAT      bool               `json:"accept_bids_with_vat"`
	AcceptBidsWithoutVAT   bool               `json:"accept_bids_without_vat"`
	VATPercents            int                `json:"vat_percents"`
	StartRate              bidding.Price      `json:"start_rate"`
	AuctionCurrencyType    int                `json:"auction_currency_type"`
	BidStep                bidding.Price      `json:"bid_step"`
	AuctionDuration        AuctionDuration    `json:"auction_duration"`
	AcceptCounterOffers    bool               `json:"accept_counter_offers"`
	AutoRenew              AutoRenew          `json:"auto_renew"`
	IsAntisniper           bool               `json:"is_antisniper"`
	RateRise               RateRise           `json:"rate_rise"`
	WinnerCriteria         string             `json:"winner_criteria"`
	TimeToProvideDocuments DocumentWindow     `json:"time_to_provide_documents"`
	WinnerReselectionCount int                `json:"winner_reselection_count"`
	AuctionRestart         AuctionRestart     `json:"auction_restart"`
	NoWinnerEndOptions     NoWinnerEndOptions `json:"no_winner_end_options"`
	Rates                  Rates              `json:"rates"`
}

type Prepayment struct {
	Percent   int  `json:"percent"`
	UsingFuel bool `json:"using_fuel"`
}

type PaymentMode struct {
	Type             string `json:"type"`
	PaymentDelayDays int    `json:"payment_delay_days"`
}

type AuctionDuration struct {
	FixedDuration string `json:"fixed_duration"`
}

type AutoRenew struct {
	Enabled       bool `json:"enabled"`
	RenewInterval int  `json:"renew_interval"`
}

type RateRise struct {
	Interval   int `json:"interval"`
	RiseAmount int `json:"rise_amount"`
}

type DocumentWindow struct {
	Hours int `json:"hours"`
}

type AuctionRestart struct {
	Enabled         bool `json:"enabled"`
	RestartInterval int  `json:"restart_interval"`
}

type NoWinnerEndOptions struct {
	Type string `json:"type"`
}

type Rates struct {
	Cash           bidding.Price `json:"cash"`
	RateWithNDS    bidding.Price `json:"rate_with_nds"`
	RateWithoutNDS bidding.Price `json:"rate_without_nds"`
}

type Board struct {
	ID                        int64  `json:"id"`
	PublicationMode           string `json:"publication_mode"`
	CancelPublishOnAuctionBet bool   `json:"cancel_publish_on_auction_bet"`
	ReservationEnabled        bool   `json:"reservation_enabled"`
}

// Builder assembles payloads targeting a single board.
type Builder struct {
	BoardID int64
}

func NewBuilder(boardID int64) Builder {
	return Builder{BoardID: boardID}
}

// Build returns the cargo application for a lot. The payment and auction
// policy are fixed; prices are not validated.
func (b Builder) Build(lotID string, betStart, betStep bidding.Price, route Route, points []WayPoint) Payload {
	if points == nil {
		points = []WayPoint{}
	}
	return Payload{
		CargoApplication: CargoApplication{
			ExternalID: lotID,
			Route:      route,
			WayPoints:  points,
			Payment:    policy(betStart, betStep),
			Boards: []Board{{
				ID:                        b.BoardID,
				PublicationMode:           "now",
				CancelPublishOnAuctionBet: false,
				ReservationEnabled:        true,
			}},
			Note: lotID,
		},
	}
}

func policy(betStart, betStep bidding.Price) Payment {
	return Payment{
		Cash:              betStart,
		Type:              "without-bargaining",
		CurrencyType:      1,
		HideCounterOffers: true,
		DirectOffer:       false,
		Prepayment: Prepayment{
			Percent:   50,
			UsingFuel: true,
		},
		PaymentMode: PaymentMode{
			Type:             "delayed-payment",
			PaymentDelayDays: 7,
		},
		AcceptBidsWithVAT:    true,
		AcceptBidsWithoutVAT: false,
		VATPercents:          20,
		StartRate:            betStart,
		AuctionCurrencyType:  1,
		BidStep:              betStep,
		AuctionDuration:      AuctionDuration{FixedDuration: "1h"},
		AcceptCounterOffers:  true,
		AutoRenew: AutoRenew{
			Enabled:       true,
			RenewInterval: 24,
		},
		IsAntisniper: false,
		RateRise: RateRise{
			Interval:   1,
			RiseAmount: 5,
		},
		WinnerCriteria:         "best-rate",
		TimeToProvideDocuments: DocumentWindow{Hours: 48},
		WinnerReselectionCount: 2,
		AuctionRestart: AuctionRestart{
			Enabled:         true,
			RestartInterval: 24,
		},
		NoWinnerEndOptions: NoWinnerEndOptions{Type: "archive"},
		Rates: Rates{
			Cash:           betStart,
			RateWithNDS:    betStart,
			RateWithoutNDS: betStart,
		},
	}
}
