package carrier

import (
	"context"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"
)

// MaxTrackBatch is the carrier's cap on waybills per tracking call. Batching
// up to this limit is strongly preferred over one-at-a-time polling.
const MaxTrackBatch = 50

// Lighter read endpoints get shorter timeouts than the 30s write default.
const readTimeout = 20 * time.Second

// Manifest registers shipments and returns the assigned waybills.
func (c *Client) Manifest(ctx context.Context, req ManifestRequest) (*ManifestResponse, error) {
	var out ManifestResponse
	err := c.SendJSON(ctx, Request{
		Method: http.MethodPost,
		Path:   "/api/cmu/create.json",
		Body:   req,
	}, &out)
	if err != nil {
		return nil, err
	}
	return &out, nil
}

// Edit updates mutable fields, converts payment mode, or (with Cancellation
// set) cancels the waybill.
func (c *Client) Edit(ctx context.Context, req EditRequest) (*EditResponse, error) {
	var out EditResponse
	err := c.SendJSON(ctx, Request{
		Method: http.MethodPost,
		Path:   "/api/p/edit",
		Body:   req,
	}, &out)
	if err != nil {
		return nil, err
	}
	return &out, nil
}

// Cancel retires a waybill. A cancelled waybill can never be manifested
// again.
func (c *Client) Cancel(ctx context.Context, awb string) (*EditResponse, error) {
	return c.Edit(ctx, EditRequest{
		Waybill:      awb,
		Cancellation: "true",
	})
}

// Track fetches current status and scan history for up to MaxTrackBatch
// waybills in one call.
func (c *Client) Track(ctx context.Context, awbs []string) (*TrackResponse, error) {
	q := url.Values{}
	q.Set("waybill", strings.Join(awbs, ","))
	q.Set("verbose", "2")

	var out TrackResponse
	err := c.SendJSON(ctx, Request{
		Method:  http.MethodGet,
		Path:    "/api/v1/packages/json/",
		Query:   q,
		Timeout: readTimeout,
	}, &out)
	if err != nil {
		return nil, err
	}
	return &out, nil
}

// NDRAction submits a re-attempt, deferral, or detail edit against an open
// non-delivery report.
func (c *Client) NDRAction(ctx context.Context, req NDRRequest) (*NDRResponse, error) {
	var out NDRResponse
	err := c.SendJSON(ctx, Request{
		Method: http.MethodPost,
		Path:   "/api/p/update",
		Body:   req,
	}, &out)
	if err != nil {
		return nil, err
	}
	return &out, nil
}

// CreatePickup schedules a pickup slot at a registered location.
func (c *Client) CreatePickup(ctx context.Context, req PickupRequest) (*PickupResponse, error) {
	var out PickupResponse
	err := c.SendJSON(ctx, Request{
		Method: http.MethodPost,
		Path:   "/fm/request/new/",
		Body:   req,
	}, &out)
	if err != nil {
		return nil, err
	}
	return &out, nil
}

// CreateReturn manifests a reverse pickup shipment.
func (c *Client) CreateReturn(ctx context.Context, req ReturnRequest) (*ManifestResponse, error) {
	var out ManifestResponse
	err := c.SendJSON(ctx, Request{
		Method: http.MethodPost,
		Path:   "/api/cmu/create.json",
		Query:  url.Values{"pickup_type": []string{"RVP"}},
		Body:   req,
	}, &out)
	if err != nil {
		return nil, err
	}
	return &out, nil
}

// Serviceability queries delivery options for a pincode. Callers must go
// through the rate governor's cache; this endpoint has a strict quota.
func (c *Client) Serviceability(ctx context.Context, pincode string) (*ServiceabilityResponse, error) {
	q := url.Values{}
	q.Set("filter_codes", pincode)

	var out ServiceabilityResponse
	err := c.SendJSON(ctx, Request{
		Method:  http.MethodGet,
		Path:    "/c/api/pin-codes/json/",
		Query:   q,
		Timeout: readTimeout,
	}, &out)
	if err != nil {
		return nil, err
	}
	return &out, nil
}

// FetchWaybills prefetches waybill numbers. Quota-bound at 5 calls per 5
// minutes.
func (c *Client) FetchWaybills(ctx context.Context, count int) (*WaybillResponse, error) {
	q := url.Values{}
	q.Set("count", strconv.Itoa(count))

	var out WaybillResponse
	err := c.SendJSON(ctx, Request{
		Method:  http.MethodGet,
		Path:    "/waybill/api/bulk/json/",
		Query:   q,
		Timeout: readTimeout,
	}, &out)
	if err != nil {
		return nil, err
	}
	return &out, nil
}
