// Package metric exports kcombo run metrics to Prometheus.
package metric
