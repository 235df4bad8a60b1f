// Package payment signs redirect URLs for the VNPay gateway and verifies its callbacks.
package payment

import (
	"crypto/hmac"
	"crypto/sha512"
	"encoding/hex"
	"errors"
	"fmt"
	"net/url"
	"strconv"
	"time"

	"localmart/internal/config"
)

const (
	Provider        = "vnpay"
	version         = "2.1.0"
	dateLayout      = "20060102150405"
	paymentLifetime = 15 * time.Minute
	codeSuccess     = "00"
)

// IPN response codes returned to the gateway.
const (
	IPNConfirmed        = "00"
	IPNOrderNotFound    = "01"
	IPNAlreadyConfirmed = "02"
	IPNInvalidAmount    = "04"
	IPNInvalidSignature = "97"
	IPNUnknownError     = "99"
)

var (
	ErrInvalidSignature = errors.New("invalid payment signature")
	ErrMissingField     = errors.New("missing payment field")
	ErrInvalidAmount    = errors.New("invalid payment amount")
)

// Request describes one redirect to the gateway.
type Request struct {
	TxnRef    string
	Amount    int64
	OrderInfo string
	IPAddr    string
	CreatedAt time.Time
}

// Result is a verified gateway callback.
type Result struct {
	TxnRef        string
	Amount        int64
	ResponseCode  string
	TransactionNo string
	BankCode      string
	Success       bool
}

// Gateway builds payment URLs and verifies callbacks.
type Gateway interface {
	PaymentURL(req Request) (string, error)
	Verify(params url.Values) (*Result, error)
}

type vnpay struct {
	cfg config.VNPayConfig
	loc *time.Location
}

// NewVNPay returns a Gateway using the merchant code and hash secret from cfg.
// Gateway timestamps are formatted in loc.
func NewVNPay(cfg config.VNPayConfig, loc *time.Location) Gateway {
	if loc == nil {
		loc = time.UTC
	}
	return &vnpay{cfg: cfg, loc: loc}
}

func (v *vnpay) PaymentURL(req Request) (string, error) {
	if req.TxnRef == "" || req.Amount <= 0 {
		return "", fmt.Errorf("%w: txn_ref and positive amount are required", ErrMissingField)
	}
	created := req.CreatedAt.In(v.loc)

	params := url.Values{}
	params.Set("vnp_Version", version)
	params.Set("vnp_Command", "pay")
	params.Set("vnp_TmnCode", v.cfg.TmnCode)
	params.Set("vnp_Amount", strconv.FormatInt(req.Amount*100, 10))
	params.Set("vnp_CurrCode", "VND")
	params.Set("vnp_TxnRef", req.TxnRef)
	params.Set("vnp_OrderInfo", req.OrderInfo)
	params.Set("vnp_OrderType", "other")
	params.Set("vnp_Locale", "vn")
	params.Set("vnp_ReturnUrl", v.cfg.ReturnURL)
	params.Set("vnp_IpAddr", req.IPAddr)
	params.Set("vnp_CreateDate", created.Format(dateLayout))
	params.Set("vnp_ExpireDate", created.Add(paymentLifetime).Format(dateLayout))

	query := params.Encode()
	return v.cfg.PayURL + "?" + query + "&vnp_SecureHash=" + sign(v.cfg.HashSecret, query), nil
}

func (v *vnpay) Verify(params url.Values) (*Result, error) {
	got := params.Get("vnp_SecureHash")
	if got == "" {
		return nil, ErrInvalidSignature
	}

	signed := url.Values{}
	for k, vals := range params {
		if k == "vnp_SecureHash" || k == "vnp_SecureHashType" || len(k) < 4 || k[:4] != "vnp_" {
			continue
		}
		signed[k] = vals
	}
	want := sign(v.cfg.HashSecret, signed.Encode())
	if !hmac.Equal([]byte(want), []byte(toLowerHex(got))) {
		return nil, ErrInvalidSignature
	}

	res := &Result{
		TxnRef:        params.Get("vnp_TxnRef"),
		ResponseCode:  params.Get("vnp_ResponseCode"),
		TransactionNo: params.Get("vnp_TransactionNo"),
		BankCode:      params.Get("vnp_BankCode"),
	}
	if res.TxnRef == "" {
		return nil, fmt.Errorf("%w: vnp_TxnRef", ErrMissingField)
	}
	raw, err := strconv.ParseInt(params.Get("vnp_Amount"), 10, 64)
	if err != nil {
		return nil, fmt.Errorf("%w: vnp_Amount", ErrMissingField)
	}
	// Amounts travel in hundredths of a dong and VND has no minor unit.
	if raw <= 0 || raw%100 != 0 {
		return nil, fmt.Errorf("%w: vnp_Amount=%d", ErrInvalidAmount, raw)
	}
	res.Amount = raw / 100

	status := params.Get("vnp_TransactionStatus")
	res.Success = res.ResponseCode == codeSuccess && (status == "" || status == codeSuccess)
	return res, nil
}

func sign(secret, data string) string {
	mac := hmac.New(sha512.New, []byte(secret))
	mac.Write([]byte(data))
	return hex.EncodeToString(mac.Sum(nil))
}

func toLowerHex(s string) string {
	b := []byte(s)
	for i, c := range b {
		if c >= 'A' && c <= 'F' {
			b[i] = c + ('a' - 'A')
		}
	}
	return string(b)
}

// NewTxnRef builds a gateway reference from the creation time and a short random suffix.
func NewTxnRef(now time.Time, suffix string) string {
	if len(suffix) > 8 {
		suffix = suffix[:8]
	}
	return now.UTC().Format(dateLayout) + suffix
}
