package metrics

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	. "github.com/smartystreets/goconvey/convey"
)

func TestOptions(t *testing.T) {
	Convey("Given manager options", t, func() {
		Convey("When creating options", func() {
			namespaceOpt := WithNamespace("test-namespace")
			registryOpt := WithRegistry(prometheus.NewRegistry())

			Convey("Then they should be valid functions", func() {
				So(namespaceOpt, ShouldNotBeNil)
				So(registryOpt, ShouldNotBeNil)
			})
		})
	})
}

func TestManagerCreation(t *testing.T) {
	Convey("Given manager creation", t, func() {
		Convey("When creating with a custom registry", func() {
			registry := prometheus.NewRegistry()
			manager := NewManager(WithRegistry(registry))

			Convey("Then it should be created successfully", func() {
				So(manager, ShouldNotBeNil)
			})

			Convey("And all collectors should land in that registry", func() {
				families, err := registry.Gather()
				So(err, ShouldBeNil)
				So(len(families), ShouldBeGreaterThan, 0)
			})
		})

		Convey("When creating with a custom namespace", func() {
			registry := prometheus.NewRegistry()
			manager := NewManager(
				WithNamespace("test-namespace"),
				WithRegistry(registry),
			)

			Convey("Then it should be created successfully", func() {
				So(manager, ShouldNotBeNil)
			})
		})
	})
}

func TestRecording(t *testing.T) {
	Convey("Given the package-level helpers", t, func() {
		Convey("When recording pipeline metrics", func() {
			Convey("Then applied, duplicate and rejected events should record", func() {
				So(func() {
					RecordEventApplied()
					RecordEventDuplicate()
					RecordEventRejected()
					RecordEventApplyDuration(12.5)
				}, ShouldNotPanic)
			})

			Convey("And operational gauges should update", func() {
				So(func() {
					UpdateQueueSize(1000)
					UpdateWorkerCount(8)
					UpdateTrackedUsers(42)
				}, ShouldNotPanic)
			})
		})

		Convey("When recording engine metrics", func() {
			Convey("Then cache, rank, badge and query helpers should record", func() {
				So(func() {
					RecordCatalogCacheHit()
					RecordCatalogCacheMiss()
					RecordRankIndexUpdate()
					RecordRankQueryDuration(1.5)
					RecordBadgeEvaluation()
					RecordHistoryQuery()
					RecordSummaryQuery()
				}, ShouldNotPanic)
			})
		})

		Convey("When recording HTTP metrics", func() {
			Convey("Then request, duration and error helpers should record", func() {
				So(func() {
					RecordHTTPRequest("summary", "GET", "200")
					RecordHTTPRequestDuration("summary", "GET", "200", 3.2)
					RecordHTTPError("summary", "not_found")
				}, ShouldNotPanic)
			})
		})

		Convey("Then the global registry should expose the recorded series", func() {
			families, err := GetRegistry().Gather()
			So(err, ShouldBeNil)
			So(len(families), ShouldBeGreaterThan, 0)
		})
	})
}
