// Package plugin is the component catalog of the streamd agent.
//
// A Catalog maps component types to parameter schemas. Inputs are declared
// in <source> blocks and outputs in <match pattern> blocks; the `type`
// parameter of each block selects the registered type:
//
//	<source>
//	  type tail
//	  path /var/log/app.log
//	  tag app
//	</source>
//
//	<match app.**>
//	  type forward
//	  flush_interval 5s
//	  <server>
//	    host 10.0.0.1
//	  </server>
//	</match>
//
// Types may inherit parameters from a parent of the same kind. The built-in
// file and forward outputs both inherit the buffer parameters of the abstract
// buffered output.
//
// Build configures every component, decodes its settings struct and then
// walks the tree for parameters nothing read, logging a warning for each.
// With WithStrict the build fails instead.
package plugin
