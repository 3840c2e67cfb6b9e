// Package redisserver serves the record store over a RESP2 command port.
//
// Any Redis client can talk to it. Supported commands:
//
//	PING [message]
//	QUIT
//	ATT.SUBMIT <employee_id>
//	ATT.GET <id>
//	EMP.ADD <employee_id> <name> [role]
//	EMP.UPDATE <employee_id> <name> [role]
//	EMP.GET <employee_id>
//
// Records are returned as JSON bulk strings. A missing record is a null
// bulk. Domain errors are written as "-ERR <code> <message>".
package redisserver
