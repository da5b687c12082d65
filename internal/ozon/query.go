package ozon

const biddingsListOperation = "BiddingsList"

const biddingsListQuery = `query BiddingsList($filter: LotsInput!) {
    Lots(filter: $filter) {
        Auction {
            Countdown
            __typename
        }
        Status
        Currency
        ID
        BiddingDurationSeconds
        Procedure {
            Name
            __typename
        }
        ProcedureInfo {
            ...ProcedureInfo
            __typename
        }
        TransportType {
            Capacity
            ID
            Name
            __typename
        }
        Temperature {
            ID
            Name
            __typename
        }
        Version
        Route {
            ReturnPointID
            WayPoints {
                ArrivalAt
                Point {
                    ID
                    Name
                    Address
                    __typename
                }
                __typename
            }
            __typename
        }
        __typename
    }
}

fragment ProcedureInfo on ProcedureInfo {
    ... on BiddingWithLimit {
        __typename
        Rank
        BiddingStarted
        StartPrice
        ContractorLastBid {
            Price
            __typename
        }
    }
    ... on DownBiddingWithStartPrice {
        __typename
        StartPrice
        Step
        LastBid {
            Price
            FromCurrentContractor
            __typename
        }
    }
    __typename
}`
