// Package bench drives concurrent requests against a quickvote server and
// reports throughput together with the distribution of responses across
// server containers.
package bench
