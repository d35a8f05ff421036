package sql

const saveExchangeRateQuery = `
INSERT INTO exchange_rates (base, target, rate, rate_type, source, bank_id, as_of, fetched_at)
VALUES ($1, $2, $3, $4, $5, NULLIF($6::bigint, 0), $7, $8)
ON CONFLICT (base, target, source, rate_type, as_of)
DO UPDATE SET rate = EXCLUDED.rate, bank_id = EXCLUDED.bank_id, fetched_at = EXCLUDED.fetched_at`

// rateAsOfQuery returns the latest rate per (target, source, rate type)
// bucket, effective at the given time, together with the bucket count
const rateAsOfQuery = `
WITH latest AS (
    SELECT DISTINCT ON (target, source, rate_type)
        base, target, rate, rate_type, source, COALESCE(bank_id, 0) AS bank_id, as_of, fetched_at
    FROM exchange_rates
    WHERE base = $1
      AND ($2::text IS NULL OR target = $2)
      AND ($3::text IS NULL OR source = $3)
      AND ($4::text IS NULL OR rate_type = $4)
      AND as_of <= $5
    ORDER BY target, source, rate_type, as_of DESC, fetched_at DESC
)
SELECT base, target, rate, rate_type, source, bank_id, as_of, fetched_at, count(*) OVER () AS total
FROM latest
ORDER BY target, source, rate_type
LIMIT $6 OFFSET $7`

const listSourcesQuery = `SELECT DISTINCT source FROM exchange_rates ORDER BY source`

const currenciesQuery = `
SELECT
    c.id,
    c.code,
    c.symbol,
    COALESCE(
        array_agg(g.value ORDER BY g.position, g.id) FILTER (WHERE g.value IS NOT NULL),
        '{}'
    )::text[] AS aliases
FROM currencies c
LEFT JOIN grabber_currency_checkers g ON g.currency_id = c.id
GROUP BY c.id, c.code, c.symbol
ORDER BY c.id`

const grabberInfoQuery = `
SELECT name, COALESCE(url, ''), COALESCE(bank_id, 0)
FROM exchange_rate_grabber_info
WHERE name = $1`

const listGrabbersQuery = `
SELECT name, COALESCE(url, ''), COALESCE(bank_id, 0)
FROM exchange_rate_grabber_info
ORDER BY name`
