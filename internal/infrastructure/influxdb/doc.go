// Package influxdb records resolution telemetry in InfluxDB.
//
// Every resolution writes a point to the "resolutions" measurement tagged by
// strategy, confidence and category; manifest imports write their summary
// counts to "manifests". Writes are batched and non-blocking, sized by
// influxdb.batch_size and influxdb.flush_interval.
//
//	client, err := influxdb.Connect(ctx, cfg.InfluxDB)
//	if err != nil {
//	    return err
//	}
//	defer client.Close()
//
//	client.WriteResolutionMetric("exact", "high", "phone", elapsed)
//
// InfluxDB is optional; Connect returns ErrDisabled when it is turned off.
package influxdb
