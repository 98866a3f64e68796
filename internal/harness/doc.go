// Package harness runs editor scenarios as executable contract tests.
//
// A scenario starts a session on a document, drives it through a list of
// steps and checks assertions against the final state. Every step is
// recorded in a trace that can be compared against a golden file.
//
// # Scenario Format
//
//	name: paste_link
//	description: "A pasted URL becomes a link"
//	config:                      # optional, same keys as the config file
//	  history_limit: 10
//	document:                    # optional, defaults to the initial document
//	  object: document
//	  nodes:
//	    - {object: block, type: paragraph, nodes: [{object: text, text: "see "}]}
//	selection: {anchor: {path: [0, 0], offset: 4}, focus: {path: [0, 0], offset: 4}}
//	steps:
//	  - dispatch:
//	      - {type: insert_text, path: [0, 0], offset: 4, text: "https://example.com"}
//	    expect: {fired: [paste-link]}
//	  - undo: true
//	  - redo: true
//	  - select: {anchor: {path: [0, 0], offset: 0}, focus: {path: [0, 0], offset: 0}}
//	  - replace: {document: {...}, selection: {...}}
//	  - load: {document: {...}}
//	assertions:
//	  - {type: text, text: "see https://example.com"}
//	  - {type: history, undo: 1, redo: 0}
//
// # Assertion Types
//
//   - text: the plain text of the final document equals text
//   - document: the final document equals document
//   - selection: the final selection equals selection
//   - history: undo and redo depths
//   - fired: the plugins that corrected step N, in order
//   - valid: the final document satisfies every normalization rule
//   - logs: number of persisted log entries
//
// # Deterministic Testing
//
// Scenarios run with sequential version IDs (testutil.SequentialGenerator)
// and a fresh in-memory SQLite store, so identical scenarios produce
// byte-identical traces.
//
// # Usage
//
//	scenario, err := harness.LoadScenario("testdata/scenarios/paste_link.yaml")
//	if err != nil {
//	    log.Fatal(err)
//	}
//	result, err := harness.Run(scenario)
//	if !result.Pass {
//	    for _, msg := range result.Errors {
//	        log.Println(msg)
//	    }
//	}
package harness
