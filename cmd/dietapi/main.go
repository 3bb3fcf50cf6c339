// dietapi serves the diet catalog over HTTP.
//
// It exposes food categories, food items, nested diet templates and a bulk
// meal-item insert endpoint as JSON, backed by MySQL, PostgreSQL or SQLite.
//
// Usage:
//
//	# Start the server with dietapi.yaml from the working directory, if any
//	dietapi run
//
//	# Start with a configuration file
//	dietapi run --config /etc/dietapi/dietapi.yaml
//
//	# Create the tables
//	dietapi migrate
//
//	# Drive load against a running server
//	dietapi loadtest --target http://localhost:8080 --requests 5000
//
//	# Show version information
//	dietapi version
package main

func main() {
	Execute()
}
