package erp

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/warelogic/grn-core/internal/infrastructure/config"
	"github.com/warelogic/grn-core/internal/order"
	"github.com/warelogic/grn-core/internal/receipt"
)

// maxErrorBody caps how much of an error response body is captured.
const maxErrorBody = 64 * 1024

// attachmentCategory is the document category attachments are filed under.
const attachmentCategory = "MISC"

// Client talks to the backend ERP's receiving REST endpoints.
type Client struct {
	baseURL  string
	username string
	password string
	http     *http.Client
}

// NewClient creates a client from ERP connection settings.
func NewClient(cfg config.ERPConfig) (*Client, error) {
	if strings.TrimSpace(cfg.BaseURL) == "" {
		return nil, ErrMissingBaseURL
	}

	timeout := time.Duration(cfg.Timeout) * time.Second
	if timeout <= 0 {
		timeout = 60 * time.Second
	}

	return &Client{
		baseURL:  strings.TrimRight(cfg.BaseURL, "/"),
		username: cfg.Username,
		password: cfg.Password,
		http:     &http.Client{Timeout: timeout},
	}, nil
}

// orderHeaderDTO is the wire shape of an order header.
type orderHeaderDTO struct {
	Number       string `json:"number"`
	ID           string `json:"id"`
	Counterparty string `json:"counterparty"`
	BusinessUnit string `json:"business_unit"`
	LegalEntity  string `json:"legal_entity"`
}

// orderLineDTO is the wire shape of one receivable line.
type orderLineDTO struct {
	Number      int             `json:"number"`
	ItemCode    string          `json:"item_code"`
	Description string          `json:"description"`
	Ordered     decimal.Decimal `json:"ordered"`
	Unit        string          `json:"unit"`
	GTIN        string          `json:"gtin,omitempty"`
}

// FetchHeader retrieves the order header by order number.
func (c *Client) FetchHeader(ctx context.Context, kind order.Kind, number string) (*order.Header, error) {
	endpoint := fmt.Sprintf("%s/orders/%s?kind=%s",
		c.baseURL, url.PathEscape(number), url.QueryEscape(string(kind)))

	var dto orderHeaderDTO
	if err := c.getJSON(ctx, endpoint, &dto, order.ErrNotFound); err != nil {
		return nil, err
	}
	return &order.Header{
		Number:       dto.Number,
		ID:           dto.ID,
		Counterparty: dto.Counterparty,
		BusinessUnit: dto.BusinessUnit,
		LegalEntity:  dto.LegalEntity,
	}, nil
}

// FetchLines retrieves the receivable lines for a header.
func (c *Client) FetchLines(ctx context.Context, kind order.Kind, headerID string) ([]order.Line, error) {
	endpoint := fmt.Sprintf("%s/orders/%s/lines?kind=%s",
		c.baseURL, url.PathEscape(headerID), url.QueryEscape(string(kind)))

	var dtos []orderLineDTO
	if err := c.getJSON(ctx, endpoint, &dtos, order.ErrNotFound); err != nil {
		return nil, err
	}

	lines := make([]order.Line, len(dtos))
	for i, dto := range dtos {
		lines[i] = order.Line{
			Number:      dto.Number,
			ItemCode:    dto.ItemCode,
			Description: dto.Description,
			Ordered:     dto.Ordered,
			Unit:        dto.Unit,
			GTIN:        dto.GTIN,
		}
	}
	return lines, nil
}

// FetchGTIN looks up the barcode registered for an item code. A 404 means
// no barcode on file and degrades to an empty result.
func (c *Client) FetchGTIN(ctx context.Context, itemCode string) (string, error) {
	endpoint := fmt.Sprintf("%s/items/%s/barcode", c.baseURL, url.PathEscape(itemCode))

	var dto struct {
		GTIN string `json:"gtin"`
	}
	if err := c.getJSON(ctx, endpoint, &dto, nil); err != nil {
		var te *receipt.TransportError
		if errors.As(err, &te) && te.StatusCode == http.StatusNotFound {
			return "", nil
		}
		return "", err
	}
	return dto.GTIN, nil
}

// FetchShipment retrieves the expected in-transit shipment for a transfer
// order.
func (c *Client) FetchShipment(ctx context.Context, number string) (*order.ShipmentRef, error) {
	endpoint := fmt.Sprintf("%s/transfers/%s/shipment", c.baseURL, url.PathEscape(number))

	var dto struct {
		Number   string `json:"number"`
		HeaderID string `json:"header_id"`
	}
	if err := c.getJSON(ctx, endpoint, &dto, order.ErrNoShipment); err != nil {
		return nil, err
	}
	return &order.ShipmentRef{Number: dto.Number, HeaderID: dto.HeaderID}, nil
}

// Submit posts one receipt payload. A 2xx response is decoded and returned
// whatever its business status; everything else becomes a TransportError.
func (c *Client) Submit(ctx context.Context, payload receipt.Payload) (*receipt.SubmitResult, error) {
	endpoint := c.baseURL + "/receipts"

	var result receipt.SubmitResult
	if err := c.postJSON(ctx, endpoint, payload, &result); err != nil {
		return nil, err
	}
	return &result, nil
}

// FetchProcessingErrors retrieves line-level processing errors for an
// accepted submission.
func (c *Client) FetchProcessingErrors(ctx context.Context, headerInterfaceID, interfaceTransactionID string) ([]receipt.ProcessingError, error) {
	endpoint := fmt.Sprintf("%s/receipts/interface/%s/transactions/%s/errors",
		c.baseURL, url.PathEscape(headerInterfaceID), url.PathEscape(interfaceTransactionID))

	var dtos []receipt.ProcessingError
	if err := c.getJSON(ctx, endpoint, &dtos, nil); err != nil {
		return nil, err
	}
	return dtos, nil
}

// UploadAttachment pushes one base64-encoded file for a receipt.
func (c *Client) UploadAttachment(ctx context.Context, headerInterfaceID, filename, mimeType, contentBase64 string) error {
	endpoint := fmt.Sprintf("%s/receipts/interface/%s/attachments",
		c.baseURL, url.PathEscape(headerInterfaceID))

	body := struct {
		Filename string `json:"filename"`
		Category string `json:"category"`
		Content  string `json:"base64_content"`
		Title    string `json:"title"`
		MimeType string `json:"mime_type,omitempty"`
	}{
		Filename: filename,
		Category: attachmentCategory,
		Content:  contentBase64,
		Title:    filename,
		MimeType: mimeType,
	}

	return c.postJSON(ctx, endpoint, body, nil)
}

// getJSON performs an authenticated GET and decodes the response into out.
// A 404 is translated to notFound when given; any other non-2xx becomes a
// TransportError.
func (c *Client) getJSON(ctx context.Context, endpoint string, out interface{}, notFound error) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return fmt.Errorf("erp: building request: %w", err)
	}
	return c.do(req, out, notFound)
}

// postJSON performs an authenticated POST with a JSON body. When out is
// non-nil the response body is decoded into it.
func (c *Client) postJSON(ctx context.Context, endpoint string, body, out interface{}) error {
	encoded, err := json.Marshal(body)
	if err != nil {
		return fmt.Errorf("erp: encoding request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(encoded))
	if err != nil {
		return fmt.Errorf("erp: building request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	return c.do(req, out, nil)
}

// do executes one request with auth headers and shared error handling.
func (c *Client) do(req *http.Request, out interface{}, notFound error) error {
	req.Header.Set("Accept", "application/json")
	if c.username != "" {
		req.SetBasicAuth(c.username, c.password)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return &receipt.TransportError{URL: req.URL.String(), Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound && notFound != nil {
		return notFound
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		return &receipt.TransportError{
			StatusCode: resp.StatusCode,
			URL:        req.URL.String(),
			Body:       string(body),
		}
	}

	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("erp: decoding response from %s: %w", req.URL, err)
	}
	return nil
}
