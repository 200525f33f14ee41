// Package cycle runs one evaluation cycle end to end:
//
//	Source.Load -> FilterLastNDays -> ComputeAverages -> Classify
//	            -> Diagnose -> Engine.ApplyOptimizations -> Report
//
// Runner is shared by the HTTP API (one cycle per analyze request) and the
// agent's one-shot analyze command. Averages runs the read-only half of the
// pipeline for the terminal dashboard, which never remediates.
//
// The source can be swapped at runtime (SetSource) when the config file is
// reloaded; a cycle already in flight keeps the source it started with.
package cycle
