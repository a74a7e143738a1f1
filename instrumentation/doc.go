// Package instrumentation provides OpenTelemetry metrics and tracing for the
// listings API.
//
// All layers share one Instrumentation instance created at startup. When
// disabled it hands out no-op providers, so call sites never need to check
// whether observability is configured:
//
//	inst, err := instrumentation.New(instrumentation.Config{
//	    ServiceName: "listings",
//	    Enabled:     true,
//	})
//	if err != nil {
//	    return err
//	}
//	defer inst.Shutdown(ctx)
//
//	inst.Metrics().CacheHits.Add(ctx, 1)
package instrumentation
