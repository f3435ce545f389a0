// Package status fetches raw job status payloads from the backend and
// normalizes their historically inconsistent shapes into canonical records.
//
// The client performs exactly one uncached round trip per call; retry policy
// belongs to the polling engine. The normalizer resolves alternate field names
// through ordered alias tables so that supporting a new backend spelling is a
// one-line change.
package status
