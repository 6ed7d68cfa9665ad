// Package bridge connects UI clients to a graph.
//
// A Session decodes the commands of one client and applies them to a
// graph.Graph; it knows nothing about the transport. Server carries sessions
// over socket.io: every connected client gets its own Session, replies go to
// that client and graph changes are broadcast to everyone.
//
//	client                       server
//	------                       ------
//	subscribe {node,port}   -->  port:value {node,port,value}  (now and on every emission)
//	next {node,port,value}  -->  port:value ... on every affected subscription
//	connect {edge}          -->  graph:changed <snapshot>      (broadcast)
//	anything invalid        -->  failure {op,error}
package bridge
