// Package azureiot adapts Azure IoT Hub device twins. Listing uses the twin
// query endpoint, paged with the x-ms-continuation header. Requests carry a
// shared access signature derived from the service connection string.
package azureiot
