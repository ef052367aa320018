// Package influxdb is the gateway's cloud telemetry sink.
//
// Sensor readings, utilization snapshots, and actuator records become points
// in three measurements (sensor, system_perf, actuator). Each point is tagged
// with the record name, resource, and type ID, and stamped with the record's
// own timestamp at millisecond precision. The gateway ID is applied once as a
// default tag when the client is created.
//
//	client, err := influxdb.Connect(ctx, cfg.InfluxDB, influxdb.Options{
//	    GatewayID: cfg.Gateway.ID,
//	    Logger:    logger,
//	})
//	if err != nil {
//	    return err
//	}
//	defer client.Close()
//
//	client.WriteSystemPerformanceData(data.GDASystemPerfMsgResource, snapshot)
//
// Writes never block: points go to the library's batching write API and
// rejected batches are logged and counted in Stats.
package influxdb
