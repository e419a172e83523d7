// SPDX-License-Identifier: MIT

package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var fileRequests = promauto.NewCounterVec(prometheus.CounterOpts{
	Name: "vidtext_file_requests_total",
	Help: "Export file download requests by result",
}, []string{"result"}) // result=allowed|not_modified|not_found|path_escape|directory_listing|method_not_allowed|internal_error

// IncFileRequest counts an export download attempt by result class.
func IncFileRequest(result string) {
	fileRequests.WithLabelValues(result).Inc()
}
