// Package codes generates the human-readable identifiers stamped on
// customers, orders and invoices. The formats are consumed downstream by
// pattern-matching clients, so the prefixes and digit shapes are stable:
// CUS + digits + alnum suffix, ORD + digits + alnum suffix, INV + digits.
// Collision resistance comes from combining a millisecond timestamp slice
// with a random suffix; the unique column index is the final guard.
package codes

import (
	"crypto/rand"
	"fmt"
	"math/big"
	"strconv"
	"time"
)

const alnum = "ABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"

// CustomerCode returns a fresh customer code, e.g. CUS482913XK7.
func CustomerCode() string {
	return "CUS" + timestampSlice(6) + randomAlnum(3)
}

// OrderNumber returns a fresh order number, e.g. ORD17245301AB3D.
func OrderNumber() string {
	return "ORD" + timestampSlice(8) + randomAlnum(4)
}

// InvoiceNumber returns a fresh invoice number. The suffix stays numeric so
// the INV-plus-digits pattern holds.
func InvoiceNumber() string {
	return "INV" + timestampSlice(8) + randomDigits(2)
}

func timestampSlice(n int) string {
	ms := strconv.FormatInt(time.Now().UnixMilli(), 10)
	if len(ms) <= n {
		return ms
	}
	return ms[len(ms)-n:]
}

func randomAlnum(n int) string {
	out := make([]byte, n)
	for i := range out {
		idx, err := rand.Int(rand.Reader, big.NewInt(int64(len(alnum))))
		if err != nil {
			// crypto/rand only fails when the OS entropy source is broken;
			// fall back to a timestamp-derived character.
			out[i] = alnum[time.Now().UnixNano()%int64(len(alnum))]
			continue
		}
		out[i] = alnum[idx.Int64()]
	}
	return string(out)
}

func randomDigits(n int) string {
	limit := big.NewInt(1)
	for i := 0; i < n; i++ {
		limit.Mul(limit, big.NewInt(10))
	}
	v, err := rand.Int(rand.Reader, limit)
	if err != nil {
		return fmt.Sprintf("%0*d", n, time.Now().UnixNano()%int64(limit.Int64()))
	}
	return fmt.Sprintf("%0*d", n, v.Int64())
}
