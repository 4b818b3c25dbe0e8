package metrics

import "time"

// HTTPMetrics provides observability for the API server.
//
// This interface is optional - pass nil to disable metrics collection with
// zero overhead.
type HTTPMetrics interface {
	// RecordRequest records a completed HTTP request.
	//
	// Parameters:
	//   - method: HTTP method
	//   - route: the matched route pattern (e.g. "/api/v1/files/{fileID}"),
	//     never the raw path
	//   - status: response status code
	//   - duration: time taken to serve the request
	RecordRequest(method, route string, status int, duration time.Duration)

	// RecordRequestStart increments the in-flight request gauge.
	RecordRequestStart()

	// RecordRequestEnd decrements the in-flight request gauge.
	RecordRequestEnd()
}
