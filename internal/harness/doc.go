// Package harness runs storefront scenarios described in YAML and checks
// their outcomes against declared expectations.
//
// # Scenario Format
//
//	name: single_purchase_edge
//	description: "Buy one phone on Edge"
//	scenario: single_purchase
//	browser: edge
//	username: jakubszczypek
//	password: "1234"
//	positions: [3]
//	buyer:
//	  name: Jakub
//	  card: "411111111111"
//	expect:
//	  outcome: pass
//	assertions:
//	  - type: step_order
//	    actions: [add_to_cart, verify_cart_total, confirm_purchase]
//
// scenario names one of the runner entry points: login, add_to_cart,
// single_purchase, multi_purchase, fixed_product_purchase, out_of_range.
// Omitted credentials, positions and buyer fall back to the runner defaults.
//
// # Expectations
//
// expect.outcome is pass (the default) or fail. A failing expectation may
// pin the failure code and a message fragment:
//
//	expect:
//	  outcome: fail
//	  code: SYNCHRONIZATION_TIMEOUT
//	  message_contains: "Welcome text"
//
// # Assertion Types
//
// Assertions inspect the recorded step trace:
//
//   - step_status: the named step was recorded with the given status (ok|failed)
//   - step_order: the named steps appear in this relative order
//   - step_count: the named step was recorded exactly N times
package harness
