// Package system samples host utilization on a fixed schedule.
//
// Probes read one utilization percentage each (CPU, memory, disk) through
// gopsutil. A probe never returns an error: an OS query that fails or panics
// is logged and reported as 0.0, so a single bad reading never stops the
// schedule.
//
// PerformanceManager runs the probes on a single goroutine with fixed-delay
// scheduling (the next wait starts when the previous tick has finished) and
// hands every snapshot to the registered message.Listener:
//
//	pm := system.NewPerformanceManager(system.Config{
//	    PollInterval: 30 * time.Second,
//	    DiskPath:     "/",
//	}, logger)
//	pm.SetDataMessageListener(gatewayManager)
//	if err := pm.Start(ctx); err != nil {
//	    return err
//	}
//	defer pm.Stop()
package system
