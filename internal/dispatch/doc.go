// Package dispatch реализует Dispatch Handler и сервис Dispatcher.
//
// Handler вызывается один раз на каждую доставку сообщения очереди:
//
//	now >= tweet_time → Publisher.Publish → DelayQueue.Delete
//	now <  tweet_time → DelayQueue.SetRedeliveryDelay(tweet_time - now)
//
// Сообщение с PROCESS_TWEET публикуется сразу, без проверки времени.
//
// Ошибки:
//   - Некорректный payload → DeadLetter, доставка считается обработанной
//   - Publisher отклонил пост (publisher.ErrRejected) → DeadLetter
//   - Любая другая ошибка Publisher → SetRedeliveryDelay(RetryDelay),
//     очередь доставит сообщение позже
//
// Handler не хранит состояния между вызовами. Гарантия "не более одной
// публикации на сообщение" делегирована visibility timeout очереди.
//
// Dispatcher — долгоживущий сервис: запускает Consumer очереди
// в отдельной горутине и передаёт сообщения в Handler по одному.
package dispatch
