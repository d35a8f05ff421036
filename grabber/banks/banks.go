package banks

import "github.com/sig-0/fxgrab/grabber"

const (
	BCVName        = "BCV"
	BinanceP2PName = "BinanceP2P"
)

// Register registers all specialized strategies with the registry
func Register(r *grabber.Registry) {
	r.Register(BCVName, NewBCV)
	r.Register(BinanceP2PName, NewBinanceP2P)
}
