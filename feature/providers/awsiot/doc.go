// Package awsiot adapts the AWS IoT fleet index. Requests are plain JSON REST
// calls to the regional control plane, signed with SigV4.
//
// Connectivity maps to status, thing attributes become metadata, the
// serialNumber attribute is the hardware id, and the first thing group is the
// cohort.
package awsiot
