// Package api exposes the person repository over HTTP as HAL resources.
//
// It owns the routing table, request decoding and validation, paging
// parameters, hypermedia link construction and the mapping from internal
// errors to status codes. Handlers translate HTTP concerns into repository
// calls and never touch a store directly.
package api
