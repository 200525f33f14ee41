// Package optimizer decides which remediation actions a health classification
// calls for and runs them, recording every attempt as applied or failed.
//
// Engine is an owned instance, not process-global state. One mutex covers a
// whole ApplyOptimizations call including command execution, so concurrent
// cycles run one after another and readers of CurrentOptimizations and
// FailedOptimizations never observe a half-finished cycle.
//
// Dispatch by tier:
//
//	Critical   packet_loss > 5     switch_backup_connection
//	           latency > 150       enable_aggressive_qos
//	           always              restart_network_services
//	Poor       signal < 50         adjust_wireless_power
//	           download < 10       limit_bandwidth_hogs
//	Fair       jitter > 10         enable_jitter_buffering
//	Good       always              clean_dns_cache
//	Excellent  always              clean_dns_cache
//
// Conditions share the classifier's predicates and absent-value defaults.
// A failed action is recorded and the cycle moves on; nothing is retried.
package optimizer
