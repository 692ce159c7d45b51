/*
Package observability turns the narrator's lifecycle hooks into Prometheus metrics.

Metrics registers its collectors on a prometheus.Registerer and exposes a
domain.LifecycleHooks value; merge it with any other hooks and hand it to the narrator.
*/
package observability
