// Package mq предоставляет инфраструктуру для работы с RabbitMQ.
//
// Структура:
//   - connection.go — управление соединением с RabbitMQ (reconnect, graceful shutdown)
//   - topology.go   — объявление exchanges, queues, bindings
//   - message.go    — конверт сообщения и payload событий
//   - publisher.go  — публикация событий
//   - consumer.go   — потребление сообщений из очередей
//
// Типы сообщений:
//   - workflow.saved — workflow сохранён через редактор
//   - node.executed  — узел выполнен (успешно или нет)
//
// Exchanges:
//   - graphflow.events — доменные события (topic)
//   - graphflow.dlq    — dead letter queue
package mq
