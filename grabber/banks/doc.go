// Package banks contains the specialized grabbing strategies.
//
// # BCV
//
// Name: "BCV"
// URL: https://www.bcv.org.ve/ (from metadata)
//
// Scrapes the official rates of Banco Central de Venezuela. Each currency
// lives in its own section (#dolar, #euro, #yuan, #lira, #rublo), where a span
// holds the currency code (the check token) and the .centrado cell the rate.
// The official rate is a MID rate, so it is recorded as both buy and sale.
// Currencies missing from the currency reference are skipped.
//
// # Binance P2P
//
// Name: "BinanceP2P"
// API: https://p2p.binance.com/bapi/c2c/v2/friendly/c2c/adv/search (default,
// overridden by metadata)
//
// Collects up to 30 USDT/VES offers per side. Offers are filtered by
// advertiser quality (strict tier, then a relaxed one), ranked by price with
// the Wilson lower bound of the completion rate as a tiebreaker, and the median
// of the top 12 is taken. Offers advertising USDT for sale give the sale price,
// offers buying USDT give the buy price. The asset echoed by the API is the
// check token.
package banks
