// Package warmup pre-populates the item cache before traffic arrives.
//
// A flash sale announces its items ahead of time. Looking them up once at
// startup pays the refill cost while the service is still idle, so the
// first wave of buyers hits warm tiers:
//
//	warmer := warmup.NewWarmer(service, warmup.DefaultConfig())
//	report, err := warmer.Warm(ctx, []int64{101, 102, 103})
//
// Ids are looked up by a bounded worker pool. Try-later results are
// retried a few times, since another replica may be refilling the same
// item. The Report says which ids ended up warm, absent upstream, still
// pending, or failed.
package warmup
