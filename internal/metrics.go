package internal

import (
	"errors"
	"fmt"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Observer captures telemetry for the conversion pipeline.
type Observer interface {
	RecordConversion(mode string, duration time.Duration, err error)
	RecordCacheLookup(result string)
	RecordUpload(duration time.Duration, polls int, err error)
	RecordInline(sizeBytes int)
}

type nopObserver struct{}

func (nopObserver) RecordConversion(string, time.Duration, error) {}
func (nopObserver) RecordCacheLookup(string)                      {}
func (nopObserver) RecordUpload(time.Duration, int, error)        {}
func (nopObserver) RecordInline(int)                              {}

// PrometheusObserver exports pipeline metrics to Prometheus.
type PrometheusObserver struct {
	conversions    *prometheus.CounterVec
	conversionTime *prometheus.HistogramVec
	cacheLookups   *prometheus.CounterVec
	uploadDuration prometheus.Histogram
	uploadPolls    prometheus.Counter
	inlineBytes    prometheus.Counter
}

// NewPrometheusObserver registers the pipeline metrics on reg.
func NewPrometheusObserver(namespace string, reg prometheus.Registerer) (*PrometheusObserver, error) {
	if namespace == "" {
		namespace = "gemini_attach"
	}
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	o := &PrometheusObserver{
		conversions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "conversions_total",
			Help:      "Attachment conversions by mode and outcome.",
		}, []string{"mode", "outcome"}),
		conversionTime: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "conversion_duration_seconds",
			Help:      "Wall time of attachment conversions.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"mode"}),
		cacheLookups: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "cache_lookups_total",
			Help:      "Remote object cache lookups by result.",
		}, []string{"result"}),
		uploadDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "upload_duration_seconds",
			Help:      "Time from submission until the remote object was active or the upload failed.",
			Buckets:   []float64{1, 2, 5, 10, 30, 60, 120, 300},
		}),
		uploadPolls: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "upload_polls_total",
			Help:      "Status polls issued while waiting for uploads.",
		}),
		inlineBytes: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "inline_bytes_total",
			Help:      "Bytes embedded as inline payloads before base64 encoding.",
		}),
	}
	collectors := []prometheus.Collector{o.conversions, o.conversionTime, o.cacheLookups, o.uploadDuration, o.uploadPolls, o.inlineBytes}
	for _, collector := range collectors {
		if err := reg.Register(collector); err != nil {
			var are prometheus.AlreadyRegisteredError
			if errors.As(err, &are) {
				continue
			}
			return nil, fmt.Errorf("register pipeline metric: %w", err)
		}
	}
	return o, nil
}

// RecordConversion counts a finished conversion
func (o *PrometheusObserver) RecordConversion(mode string, duration time.Duration, err error) {
	if o == nil {
		return
	}
	o.conversions.WithLabelValues(mode, outcomeOf(err)).Inc()
	o.conversionTime.WithLabelValues(mode).Observe(duration.Seconds())
}

// RecordCacheLookup counts a cache lookup ("hit", "miss", "unavailable")
func (o *PrometheusObserver) RecordCacheLookup(result string) {
	if o == nil {
		return
	}
	o.cacheLookups.WithLabelValues(result).Inc()
}

// RecordUpload tracks upload duration and polls
func (o *PrometheusObserver) RecordUpload(duration time.Duration, polls int, err error) {
	if o == nil {
		return
	}
	o.uploadDuration.Observe(duration.Seconds())
	o.uploadPolls.Add(float64(polls))
}

// RecordInline tracks inline payload sizes
func (o *PrometheusObserver) RecordInline(sizeBytes int) {
	if o == nil {
		return
	}
	o.inlineBytes.Add(float64(sizeBytes))
}

// outcomeOf maps an error to a low-cardinality label
func outcomeOf(err error) string {
	var (
		tooLarge    *PayloadTooLargeError
		decode      *MediaDecodeError
		unsupported *UnsupportedTypeError
		submit      *UploadSubmitError
		failed      *RemoteProcessingFailedError
		timeout     *UploadTimeoutError
	)
	switch {
	case err == nil:
		return "ok"
	case errors.As(err, &tooLarge):
		return "too_large"
	case errors.As(err, &decode):
		return "decode_error"
	case errors.As(err, &unsupported):
		return "unsupported_type"
	case errors.As(err, &submit):
		return "submit_error"
	case errors.As(err, &failed):
		return "remote_failed"
	case errors.As(err, &timeout):
		return "timeout"
	default:
		return "error"
	}
}

// WriteMetrics writes every metric gathered by g to path in the textfile
// collector format.
func WriteMetrics(path string, g prometheus.Gatherer) error {
	if err := prometheus.WriteToTextfile(path, g); err != nil {
		return &StorageError{Path: path, Op: "write", Err: err}
	}
	return nil
}
