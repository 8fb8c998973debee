// Package workflow assembles the agent and server plugin payloads.
//
// A workflow selects dependencies from the resolved graph, places them into
// the working directory, prepares the runtime descriptor and packs the
// result into zip archives. Every step is recorded in an assembly.Context so
// that IDE artifact descriptors can describe the same layout.
//
// Layout below the working directory:
//
//	agent-unpacked/<plugin>/lib/...          agent payload
//	agent/<plugin>.zip                       agent archive
//	plugin/<plugin>/server|agent|bundled/... server payload
//	dist/<plugin>.zip, dist/<plugin>-packed.zip
package workflow
