package auctioneer

import "errors"

var ErrUnknownAuction = errors.New("no auction parameters")
