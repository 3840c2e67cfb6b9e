// Package command defines the rollcall-cli command tree.
//
//	rollcall-cli attendance submit <employee_id>
//	rollcall-cli attendance get <id>
//	rollcall-cli employee add <employee_id> <name> [role]
//	rollcall-cli employee update <employee_id> <name> [role]
//	rollcall-cli employee get <employee_id>
//	rollcall-cli system health|status|gc
//	rollcall-cli backup create|list
//	rollcall-cli shell
package command
