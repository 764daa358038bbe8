// Package sandbox compiles and runs untrusted C-family and Java source.
//
// Every request is written into its own workspace directory, compiled with an
// external toolchain under a compile budget, and the produced artifact is run
// under a separate execute budget. The combined stdout/stderr of the program
// is returned; failures are classified by stage and rendered as a localized
// message. The workspace is removed on every exit path.
//
// Processes run on the host by default. The docker and podman backends wrap
// each stage in a throwaway container with the workspace bind-mounted.
//
// Usage:
//
//	svc, err := sandbox.NewServiceFromConfig(logger, cfg)
//	result := svc.CompileC(ctx, `#include <cstdio>
//	int main() { puts("hi"); }`)
package sandbox
