// Package metrics exposes the service's Prometheus counters.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "picfeed"

// Feed enrichment step labels.
const (
	StepAuthors        = "authors"
	StepLikeCounts     = "like_counts"
	StepCommentCounts  = "comment_counts"
	StepViewerOverlay  = "viewer_overlay"
	StepCommentPreview = "comment_previews"
	StepCommentAuthors = "comment_authors"
)

// Recorder owns the counters and the registry they are exported from.
// A nil *Recorder is valid and records nothing.
type Recorder struct {
	registry        *prometheus.Registry
	postsCreated    prometheus.Counter
	compensations   *prometheus.CounterVec
	likeConflicts   prometheus.Counter
	feedDegraded    *prometheus.CounterVec
	uploadsRejected *prometheus.CounterVec
}

// NewRecorder creates a Recorder backed by a fresh registry that also carries
// the Go runtime and process collectors.
func NewRecorder() *Recorder {
	r := &Recorder{
		registry: prometheus.NewRegistry(),
		postsCreated: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "posts_created_total",
			Help:      "Count of posts created successfully.",
		}),
		compensations: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "post_compensation_total",
			Help:      "Count of uploaded blobs deleted after a failed post insert, by outcome.",
		}, []string{"outcome"}),
		likeConflicts: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "like_conflict_total",
			Help:      "Count of like attempts rejected by the uniqueness constraint.",
		}),
		feedDegraded: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "feed_enrichment_degraded_total",
			Help: "Count of feed pages served with a degraded enrichment step.",
		}, []string{"step"}),
		uploadsRejected: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "upload_rejected_total",
			Help:      "Count of post uploads rejected by validation, by reason.",
		}, []string{"reason"}),
	}

	r.registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		r.postsCreated,
		r.compensations,
		r.likeConflicts,
		r.feedDegraded,
		r.uploadsRejected,
	)
	return r
}

// Registry returns the registry the counters are registered with.
func (r *Recorder) Registry() *prometheus.Registry {
	if r == nil {
		return nil
	}
	return r.registry
}

// Handler serves the registry in the Prometheus exposition format.
func (r *Recorder) Handler() http.Handler {
	if r == nil {
		return http.NotFoundHandler()
	}
	return promhttp.HandlerFor(r.registry, promhttp.HandlerOpts{Registry: r.registry})
}

// PostCreated records a successful post creation.
func (r *Recorder) PostCreated() {
	if r == nil {
		return
	}
	r.postsCreated.Inc()
}

// CompensationRan records a blob cleanup after a failed insert.
func (r *Recorder) CompensationRan(succeeded bool) {
	if r == nil {
		return
	}
	outcome := "deleted"
	if !succeeded {
		outcome = "failed"
	}
	r.compensations.WithLabelValues(outcome).Inc()
}

// LikeConflict records a duplicate like rejected by storage.
func (r *Recorder) LikeConflict() {
	if r == nil {
		return
	}
	r.likeConflicts.Inc()
}

// FeedDegraded records that an enrichment step fell back to defaults.
func (r *Recorder) FeedDegraded(step string) {
	if r == nil {
		return
	}
	r.feedDegraded.WithLabelValues(step).Inc()
}

// UploadRejected records a validation rejection of an upload.
func (r *Recorder) UploadRejected(reason string) {
	if r == nil {
		return
	}
	r.uploadsRejected.WithLabelValues(reason).Inc()
}
