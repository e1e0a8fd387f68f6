// Package retention prunes old session records on a cron schedule.
package retention
