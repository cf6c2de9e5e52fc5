// Package erp is the HTTP client for the backend ERP's receiving API.
//
// It implements the three narrow interfaces the domain packages consume:
// order.Provider (headers, lines, barcodes, shipments), receipt.Submitter
// (receipt submission and processing-error lookup), and attachment.Target
// (attachment upload). Wire DTOs are private; everything crossing the
// package boundary is a domain type.
//
// Transport failures and non-2xx responses are returned as
// *receipt.TransportError carrying the status code, request URL, and raw
// response body, so the orchestrator can surface them per part.
package erp
